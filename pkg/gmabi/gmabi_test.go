package gmabi_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h15s/gmtea/pkg/gmabi"
)

var (
	contract = common.HexToAddress("0x4842A51Fac74B11aAD565134bD9f79e8b6dA5D47")
	user     = common.HexToAddress("0x00000000000000000000000000000000000000aa")
)

func TestPackGM(t *testing.T) {
	t.Parallel()

	expected := crypto.Keccak256([]byte("gm()"))[:4]
	assert.Equal(t, expected, gmabi.PackGM())
}

func TestEventID(t *testing.T) {
	t.Parallel()

	expected := crypto.Keccak256Hash([]byte("GMed(address,uint256)"))
	assert.Equal(t, expected, gmabi.EventID())
}

func TestFilterQuery(t *testing.T) {
	t.Parallel()

	// Act
	q := gmabi.FilterQuery(contract, 10, 20)

	// Assert
	assert.Equal(t, big.NewInt(10), q.FromBlock)
	assert.Equal(t, big.NewInt(20), q.ToBlock)
	assert.Equal(t, []common.Address{contract}, q.Addresses)
	require.Len(t, q.Topics, 1)
	assert.Equal(t, []common.Hash{gmabi.EventID()}, q.Topics[0])
}

func TestUnpack(t *testing.T) {
	t.Parallel()

	t.Run("it decodes user and timestamp", func(t *testing.T) {
		t.Parallel()

		// Arrange
		txHash := common.HexToHash("0x01")
		log := gmabi.NewLog(contract, user, 1_700_000_000, 42, txHash)

		// Act
		ev, err := gmabi.Unpack(log)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, user, ev.User)
		assert.Equal(t, uint64(1_700_000_000), ev.Timestamp)
		assert.Equal(t, uint64(42), ev.BlockNumber)
		assert.Equal(t, txHash, ev.TxHash)
	})

	t.Run("it rejects logs of other events", func(t *testing.T) {
		t.Parallel()

		// Arrange
		log := gmabi.NewLog(contract, user, 1, 1, common.Hash{})
		log.Topics[0] = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

		// Act
		_, err := gmabi.Unpack(log)

		// Assert
		assert.ErrorIs(t, err, gmabi.ErrUnexpectedEvent)
	})

	t.Run("it rejects logs without the indexed user", func(t *testing.T) {
		t.Parallel()

		// Arrange
		log := types.Log{Topics: []common.Hash{gmabi.EventID()}}

		// Act
		_, err := gmabi.Unpack(log)

		// Assert
		assert.ErrorIs(t, err, gmabi.ErrUnexpectedEvent)
	})

	t.Run("it rejects truncated data", func(t *testing.T) {
		t.Parallel()

		// Arrange
		log := gmabi.NewLog(contract, user, 1, 1, common.Hash{})
		log.Data = log.Data[:16]

		// Act
		_, err := gmabi.Unpack(log)

		// Assert
		assert.ErrorIs(t, err, gmabi.ErrDecodeFailed)
	})

	t.Run("it rejects timestamps beyond uint64", func(t *testing.T) {
		t.Parallel()

		// Arrange
		log := gmabi.NewLog(contract, user, 1, 1, common.Hash{})
		log.Data = common.LeftPadBytes(new(big.Int).Lsh(big.NewInt(1), 70).Bytes(), 32)

		// Act
		_, err := gmabi.Unpack(log)

		// Assert
		assert.ErrorIs(t, err, gmabi.ErrDecodeFailed)
	})
}
