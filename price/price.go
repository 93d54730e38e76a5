// Package price fetches the current BTC/USD exchange rate from a
// bpi-shaped JSON endpoint.
package price

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	bitcoinlab "github.com/supertren/bitcoin-lab-en"
)

// DefaultURL is the public price index used when no endpoint is configured.
const DefaultURL = "https://api.coindesk.com/v1/bpi/currentprice/USD.json"

type priceIndex struct {
	Bpi struct {
		USD struct {
			Rate string `json:"rate"`
		} `json:"USD"`
	} `json:"bpi"`
}

type Client struct {
	url    string
	client *http.Client
}

// NewClient creates a price client. An empty url selects DefaultURL, a nil
// httpClient selects a client with a 15 second timeout.
func NewClient(url string, httpClient *http.Client) *Client {
	if len(url) == 0 {
		url = DefaultURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{url: url, client: httpClient}
}

// GetPrice returns the current price of one bitcoin in US dollars.
func (c *Client) GetPrice() (float64, error) {
	const op = "getting price"

	log.Debugf("price: GET %s", c.url)

	resp, err := c.client.Get(c.url)
	if err != nil {
		return 0, bitcoinlab.NetworkError(op, err)
	}
	// nolint:all
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, bitcoinlab.NetworkError(op, err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, bitcoinlab.NewError(
			bitcoinlab.KindNetwork, op,
			fmt.Errorf("unexpected status %s: %s", resp.Status, string(body)),
		)
	}

	index := priceIndex{}
	if err := json.Unmarshal(body, &index); err != nil {
		return 0, bitcoinlab.NewError(bitcoinlab.KindParse, op, err)
	}

	// The rate comes formatted for display ("117,523.45").
	rate := strings.ReplaceAll(index.Bpi.USD.Rate, ",", "")
	if len(rate) == 0 {
		return 0, bitcoinlab.NewError(
			bitcoinlab.KindParse, op, fmt.Errorf("response carries no USD rate"),
		)
	}

	value, err := strconv.ParseFloat(rate, 64)
	if err != nil {
		return 0, bitcoinlab.NewError(bitcoinlab.KindParse, op, err)
	}
	return value, nil
}
