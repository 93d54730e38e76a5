package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/supertren/bitcoin-lab-en/explorer"
	"github.com/supertren/bitcoin-lab-en/internal/utils"
	"github.com/supertren/bitcoin-lab-en/menu"
	"github.com/supertren/bitcoin-lab-en/price"
	"github.com/supertren/bitcoin-lab-en/txbuilder"
)

var Version string

var (
	networkFlag = &cli.StringFlag{
		Name:    "network",
		Usage:   "the Bitcoin network to use (mainnet, testnet, signet, regtest)",
		Value:   "mainnet",
		EnvVars: []string{"BTCLAB_NETWORK"},
	}
	explorerFlag = &cli.StringFlag{
		Name:  "explorer",
		Usage: "the url of the esplora-compatible explorer to use",
	}
	priceURLFlag = &cli.StringFlag{
		Name:  "price-url",
		Usage: "the url of the price index endpoint to use",
	}
	verboseFlag = &cli.BoolFlag{
		Name:        "verbose",
		Usage:       "enable debug logs",
		Value:       false,
		DefaultText: "false",
	}
)

func main() {
	app := cli.NewApp()
	app.Version = Version
	app.Name = "btclab"
	app.Usage = "interactive console for elementary Bitcoin operations"
	app.Flags = []cli.Flag{networkFlag, explorerFlag, priceURLFlag, verboseFlag}
	app.Action = func(ctx *cli.Context) error {
		if ctx.Bool(verboseFlag.Name) {
			log.SetLevel(log.DebugLevel)
		}

		params, err := utils.NetworkParams(ctx.String(networkFlag.Name))
		if err != nil {
			return err
		}

		explorerSvc, err := explorer.NewExplorer(ctx.String(explorerFlag.Name), params)
		if err != nil {
			return err
		}
		priceClient := price.NewClient(ctx.String(priceURLFlag.Name), nil)
		builder := txbuilder.New(explorerSvc, params)

		if !term.IsTerminal(int(os.Stdin.Fd())) {
			log.Warn("stdin is not a terminal, reading menu choices from the pipe")
		}

		return menu.New(os.Stdin, os.Stdout, params, explorerSvc, priceClient, builder).Run()
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Println(fmt.Errorf("error: %v", err))
		os.Exit(1)
	}
}
