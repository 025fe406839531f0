package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

func TestKindOfUnwrapsWrappedErrors(t *testing.T) {
	base := Generation("provider returned status 500", errors.New("boom"))
	wrapped := fmt.Errorf("generate: %w", base)

	require.Equal(t, KindGeneration, KindOf(wrapped))
	require.True(t, Is(wrapped, KindGeneration))
	require.False(t, Is(wrapped, KindValidation))
	require.Equal(t, KindInternal, KindOf(errors.New("plain")))
	require.False(t, Is(nil, KindInternal))
	require.Contains(t, base.Error(), "boom")
}

func TestKindStatus(t *testing.T) {
	require.Equal(t, http.StatusBadRequest, KindValidation.Status())
	require.Equal(t, http.StatusNotFound, KindNotFound.Status())
	require.Equal(t, http.StatusBadGateway, KindGeneration.Status())
	require.Equal(t, http.StatusBadGateway, KindExport.Status())
	require.Equal(t, http.StatusServiceUnavailable, KindUnavailable.Status())
	require.Equal(t, http.StatusInternalServerError, KindPersistence.Status())
}

func TestFromBindingListsFields(t *testing.T) {
	type req struct {
		Content     string `validate:"required"`
		Instruction string `validate:"required"`
	}
	err := validator.New().Struct(req{Content: "x"})
	require.Error(t, err)

	e := FromBinding(err)
	require.Equal(t, KindValidation, e.Kind)
	require.Contains(t, e.Message, "Instruction (required)")
	require.NotContains(t, e.Message, "Content")

	require.Equal(t, "invalid request body", FromBinding(errors.New("EOF")).Message)
}
