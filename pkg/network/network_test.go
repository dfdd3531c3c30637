package network_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h15s/gmtea/pkg/network"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("it returns tea sepolia when no file is given", func(t *testing.T) {
		t.Parallel()

		// Act
		n, err := network.Load("")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, uint64(10218), n.ChainID)
		assert.Len(t, n.RPCURLs, 2)
		assert.Equal(t, common.HexToAddress("0x4842A51Fac74B11aAD565134bD9f79e8b6dA5D47"), n.Contract)
		assert.Equal(t, network.DefaultLookbackBlocks, n.LookbackBlocks)
	})

	t.Run("it overlays the file on the defaults", func(t *testing.T) {
		t.Parallel()

		// Arrange
		path := filepath.Join(t.TempDir(), "network.yaml")
		content := `
name: Local Anvil
chainId: 31337
rpcUrls:
  - http://127.0.0.1:8545
contract: "0x00000000000000000000000000000000000000bb"
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		// Act
		n, err := network.Load(path)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "Local Anvil", n.Name)
		assert.Equal(t, uint64(31337), n.ChainID)
		assert.Equal(t, []string{"http://127.0.0.1:8545"}, n.RPCURLs)
		assert.Equal(t, common.HexToAddress("0xbb"), n.Contract)
		assert.Equal(t, "https://sepolia.tea.xyz", n.ExplorerURL, "unset fields keep defaults")
		assert.Equal(t, network.DefaultLookbackBlocks, n.LookbackBlocks)
	})

	t.Run("it does not share the default RPC slice", func(t *testing.T) {
		t.Parallel()

		// Act
		n, err := network.Load("")
		require.NoError(t, err)
		n.RPCURLs[0] = "mutated"

		// Assert
		assert.NotEqual(t, "mutated", network.TeaSepolia.RPCURLs[0])
	})

	t.Run("it reports unreadable files", func(t *testing.T) {
		t.Parallel()

		// Act
		_, err := network.Load(filepath.Join(t.TempDir(), "missing.yaml"))

		// Assert
		assert.ErrorIs(t, err, network.ErrReadFile)
	})
}

func TestParse(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		content     string
		expectedErr error
	}{
		{
			name:        "invalid yaml",
			content:     "rpcUrls: [",
			expectedErr: network.ErrParseFile,
		},
		{
			name:        "invalid contract",
			content:     `contract: "0x1234"`,
			expectedErr: network.ErrInvalidContract,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// Act
			_, err := network.Parse([]byte(tc.content))

			// Assert
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := network.TeaSepolia

	noURLs := valid
	noURLs.RPCURLs = nil

	noContract := valid
	noContract.Contract = common.Address{}

	noChain := valid
	noChain.ChainID = 0

	assert.NoError(t, valid.Validate())
	assert.ErrorIs(t, noURLs.Validate(), network.ErrNoRPCURLs)
	assert.ErrorIs(t, noContract.Validate(), network.ErrNoContract)
	assert.ErrorIs(t, noChain.Validate(), network.ErrNoChainID)
}

func TestExplorerLinks(t *testing.T) {
	t.Parallel()

	n := network.TeaSepolia
	n.ExplorerURL = "https://sepolia.tea.xyz/"
	hash := common.HexToHash("0xabc")

	assert.Equal(t, "https://sepolia.tea.xyz/tx/"+hash.Hex(), n.TxURL(hash))
	assert.Equal(t, "https://sepolia.tea.xyz/address/"+n.Contract.Hex(), n.AddressURL(n.Contract))
}

func TestWithRPCURLs(t *testing.T) {
	t.Parallel()

	t.Run("it keeps the list when no override is given", func(t *testing.T) {
		t.Parallel()

		// Act
		n := network.TeaSepolia.WithRPCURLs(nil)

		// Assert
		assert.Equal(t, network.TeaSepolia.RPCURLs, n.RPCURLs)
	})

	t.Run("it replaces the list without touching the original", func(t *testing.T) {
		t.Parallel()

		// Arrange
		urls := []string{"http://localhost:8545"}

		// Act
		n := network.TeaSepolia.WithRPCURLs(urls)
		urls[0] = "mutated"

		// Assert
		assert.Equal(t, []string{"http://localhost:8545"}, n.RPCURLs)
		assert.Len(t, network.TeaSepolia.RPCURLs, 2)
	})
}
