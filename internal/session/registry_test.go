package session

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EnsoFinance/temper/internal/apperror"
	"github.com/EnsoFinance/temper/internal/evmi"
	"github.com/EnsoFinance/temper/internal/forkdb"
)

func newTestInstance() *evmi.Instance {
	return evmi.New(forkdb.New(nil, nil), evmi.Config{ChainID: 1, BlockNumber: 1})
}

func TestCreateLookupDelete(t *testing.T) {
	reg := NewRegistry()
	id := reg.Create(newTestInstance())

	handle, err := reg.Lookup(id)
	require.NoError(t, err)
	assert.NotNil(t, handle)

	require.NoError(t, reg.Delete(id))

	_, err = reg.Lookup(id)
	require.Error(t, err)
	var rej *apperror.Rejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, apperror.CodeStateNotFound, rej.Code)
}

func TestDeleteMissingSessionIsStateNotFound(t *testing.T) {
	reg := NewRegistry()
	err := reg.Delete(uuid.New())
	require.Error(t, err)
	var rej *apperror.Rejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, apperror.CodeStateNotFound, rej.Code)
}

func TestHandleSerialisesConcurrentUse(t *testing.T) {
	reg := NewRegistry()
	id := reg.Create(newTestInstance())
	handle, err := reg.Lookup(id)
	require.NoError(t, err)

	var wg sync.WaitGroup
	counter := 0
	for n := 0; n < 50; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = handle.Use(func(*evmi.Instance) error {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}
