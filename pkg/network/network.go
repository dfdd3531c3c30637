// Package network describes the chain the gm contract lives on.
package network

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

var (
	ErrNoRPCURLs       = errors.New("network has no RPC URLs")
	ErrNoContract      = errors.New("network has no contract address")
	ErrInvalidContract = errors.New("invalid contract address")
	ErrNoChainID       = errors.New("network has no chain id")
	ErrReadFile        = errors.New("failed to read network file")
	ErrParseFile       = errors.New("failed to parse network file")
)

// DefaultLookbackBlocks is how far behind the head GMed logs are read.
const DefaultLookbackBlocks = uint64(50000)

// Network holds everything needed to talk to one deployment of the gm contract.
type Network struct {
	Name           string         `yaml:"name"`
	ChainID        uint64         `yaml:"chainId"`
	RPCURLs        []string       `yaml:"rpcUrls"`
	ExplorerURL    string         `yaml:"explorerUrl"`
	Contract       common.Address `yaml:"-"`
	LookbackBlocks uint64         `yaml:"lookbackBlocks"`
}

// TeaSepolia is the deployment the page was built for.
var TeaSepolia = Network{
	Name:    "Tea Sepolia",
	ChainID: 10218,
	RPCURLs: []string{
		"https://tea-sepolia.g.alchemy.com/v2/bsayB3hJ3hij6-t5YUUQBL5jDV-o5h2f",
		"https://tea-sepolia.g.alchemy.com/v2/Wa-bUwSDb2nujeYWyIZ9eHK3XXsxiM8j",
	},
	ExplorerURL:    "https://sepolia.tea.xyz",
	Contract:       common.HexToAddress("0x4842A51Fac74B11aAD565134bD9f79e8b6dA5D47"),
	LookbackBlocks: DefaultLookbackBlocks,
}

// file mirrors Network with the contract as text so bad hex is reported instead of zeroed.
type file struct {
	Name           string   `yaml:"name"`
	ChainID        uint64   `yaml:"chainId"`
	RPCURLs        []string `yaml:"rpcUrls"`
	ExplorerURL    string   `yaml:"explorerUrl"`
	Contract       string   `yaml:"contract"`
	LookbackBlocks uint64   `yaml:"lookbackBlocks"`
}

// Load reads a YAML network file over the TeaSepolia defaults.
// An empty path returns the defaults.
func Load(path string) (Network, error) {
	if path == "" {
		return TeaSepolia.clone(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Network{}, fmt.Errorf("%w: %w", ErrReadFile, err)
	}
	return Parse(data)
}

// Parse decodes YAML over the TeaSepolia defaults and validates the result.
func Parse(data []byte) (Network, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Network{}, fmt.Errorf("%w: %w", ErrParseFile, err)
	}

	n := TeaSepolia.clone()
	if f.Name != "" {
		n.Name = f.Name
	}
	if f.ChainID != 0 {
		n.ChainID = f.ChainID
	}
	if len(f.RPCURLs) > 0 {
		n.RPCURLs = f.RPCURLs
	}
	if f.ExplorerURL != "" {
		n.ExplorerURL = f.ExplorerURL
	}
	if f.Contract != "" {
		addr, err := ParseAddress(f.Contract)
		if err != nil {
			return Network{}, err
		}
		n.Contract = addr
	}
	if f.LookbackBlocks != 0 {
		n.LookbackBlocks = f.LookbackBlocks
	}

	if err := n.Validate(); err != nil {
		return Network{}, err
	}
	return n, nil
}

// ParseAddress accepts a 0x-prefixed 20 byte hex address.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidContract, s)
	}
	return common.HexToAddress(s), nil
}

// Validate reports the first missing required field.
func (n Network) Validate() error {
	switch {
	case len(n.RPCURLs) == 0:
		return ErrNoRPCURLs
	case n.Contract == (common.Address{}):
		return ErrNoContract
	case n.ChainID == 0:
		return ErrNoChainID
	}
	return nil
}

// TxURL links to a transaction on the explorer.
func (n Network) TxURL(hash common.Hash) string {
	return strings.TrimRight(n.ExplorerURL, "/") + "/tx/" + hash.Hex()
}

// AddressURL links to an address on the explorer.
func (n Network) AddressURL(addr common.Address) string {
	return strings.TrimRight(n.ExplorerURL, "/") + "/address/" + addr.Hex()
}

// WithRPCURLs replaces the endpoint list when urls is not empty.
func (n Network) WithRPCURLs(urls []string) Network {
	n = n.clone()
	if len(urls) > 0 {
		n.RPCURLs = append([]string(nil), urls...)
	}
	return n
}

func (n Network) clone() Network {
	n.RPCURLs = append([]string(nil), n.RPCURLs...)
	return n
}
