package purchasing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatNumber(t *testing.T) {
	require.Equal(t, "PO-000001", FormatNumber(1))
	require.Equal(t, "PO-000123", FormatNumber(123))
	require.Equal(t, "PO-1234567", FormatNumber(1234567))
}

func TestNumberSeq(t *testing.T) {
	require.EqualValues(t, 123, NumberSeq("PO-000123"))
	require.EqualValues(t, 1234567, NumberSeq("PO-1234567"))
	require.EqualValues(t, 0, NumberSeq("INV-000123"))
	require.EqualValues(t, 0, NumberSeq("PO-abc"))
	require.EqualValues(t, 0, NumberSeq(""))
}
