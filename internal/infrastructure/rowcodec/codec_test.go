package rowcodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	codec := New()

	t.Run("Header first and minimal quoting", func(t *testing.T) {
		out, err := codec.Encode(
			[]string{"client_name", "shipping_address_1", "quantity"},
			[][]string{
				{"Acme, Inc.", "Main Street 1", "2"},
				{`Say "hi"`, "", "1.5"},
			},
		)

		require.NoError(t, err)
		assert.Equal(t,
			"client_name,shipping_address_1,quantity\n"+
				"\"Acme, Inc.\",Main Street 1,2\n"+
				"\"Say \"\"hi\"\"\",,1.5\n",
			string(out))
	})

	t.Run("CRLF line endings", func(t *testing.T) {
		out, err := New(WithCRLF(true)).Encode([]string{"a", "b"}, [][]string{{"1", "2"}})

		require.NoError(t, err)
		assert.Equal(t, "a,b\r\n1,2\r\n", string(out))
	})

	t.Run("Header only", func(t *testing.T) {
		out, err := codec.Encode([]string{"a"}, nil)

		require.NoError(t, err)
		assert.Equal(t, "a\n", string(out))
	})

	t.Run("Empty header is rejected", func(t *testing.T) {
		_, err := codec.Encode(nil, [][]string{{"x"}})
		assert.ErrorIs(t, err, ErrMissingHeader)
	})

	t.Run("Row width mismatch", func(t *testing.T) {
		_, err := codec.Encode([]string{"a", "b"}, [][]string{{"1"}})

		require.Error(t, err)
		var rowErr RowError
		require.ErrorAs(t, err, &rowErr)
		assert.Equal(t, ErrCodeWidthMismatch, rowErr.Code)
		assert.Equal(t, 2, rowErr.Row)
	})
}

func TestDecode(t *testing.T) {
	codec := New()

	t.Run("Header and rows", func(t *testing.T) {
		table, err := codec.Decode([]byte("reference,sku,quantity\nSO001,A,2\nSO002,B,1\n"))

		require.NoError(t, err)
		assert.Equal(t, []string{"reference", "sku", "quantity"}, table.Header)
		require.Len(t, table.Rows, 2)
		assert.Equal(t, []string{"SO001", "A", "2"}, table.Rows[0].Fields)
		assert.Equal(t, 2, table.Rows[0].LineNumber)
		assert.Equal(t, 3, table.Rows[1].LineNumber)
	})

	t.Run("UTF-8 BOM is stripped", func(t *testing.T) {
		table, err := codec.Decode([]byte("\xEF\xBB\xBFreference,sku\nSO001,A"))

		require.NoError(t, err)
		assert.Equal(t, "reference", table.Header[0])
	})

	t.Run("Blank rows are skipped", func(t *testing.T) {
		table, err := codec.Decode([]byte("a,b\n1,2\n\n , \n,\n3,4\n"))

		require.NoError(t, err)
		require.Len(t, table.Rows, 2)
		assert.Equal(t, []string{"3", "4"}, table.Rows[1].Fields)
	})

	t.Run("Fields are trimmed", func(t *testing.T) {
		table, err := codec.Decode([]byte(" a , b \n 1 , 2 \n"))

		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, table.Header)
		assert.Equal(t, []string{"1", "2"}, table.Rows[0].Fields)
	})

	t.Run("Quoted fields round trip", func(t *testing.T) {
		header := []string{"name", "note"}
		rows := [][]string{{"Acme, Inc.", `line "one"`}}
		data, err := codec.Encode(header, rows)
		require.NoError(t, err)

		table, err := codec.Decode(data)

		require.NoError(t, err)
		assert.Equal(t, header, table.Header)
		assert.Equal(t, rows[0], table.Rows[0].Fields)
	})

	t.Run("Header only yields zero rows", func(t *testing.T) {
		table, err := codec.Decode([]byte("a,b\n"))

		require.NoError(t, err)
		assert.Empty(t, table.Rows)
	})

	t.Run("Empty input", func(t *testing.T) {
		_, err := codec.Decode(nil)
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("Whitespace only input has no header", func(t *testing.T) {
		_, err := codec.Decode([]byte("\n\n"))
		assert.ErrorIs(t, err, ErrMissingHeader)
	})

	t.Run("Short row is a decode error", func(t *testing.T) {
		_, err := codec.Decode([]byte("a,b,c\n1,2,3\n4,5\n"))

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformedRow)
		var rowErr RowError
		require.ErrorAs(t, err, &rowErr)
		assert.Equal(t, ErrCodeMalformedRow, rowErr.Code)
		assert.Equal(t, 3, rowErr.Row)
	})

	t.Run("Long row is a decode error", func(t *testing.T) {
		_, err := codec.Decode([]byte("a,b\n1,2,3\n"))
		assert.ErrorIs(t, err, ErrMalformedRow)
	})

	t.Run("Duplicated header label", func(t *testing.T) {
		_, err := codec.Decode([]byte("a,a\n1,2\n"))

		var rowErr RowError
		require.ErrorAs(t, err, &rowErr)
		assert.Equal(t, ErrCodeDuplicatedHeader, rowErr.Code)
	})

	t.Run("Invalid UTF-8", func(t *testing.T) {
		_, err := codec.Decode([]byte("name\nCaf\xe9\n"))
		assert.ErrorIs(t, err, ErrInvalidEncoding)
	})

	t.Run("Custom delimiter", func(t *testing.T) {
		table, err := New(WithDelimiter(';')).Decode([]byte("a;b\n1;2\n"))

		require.NoError(t, err)
		assert.Equal(t, []string{"1", "2"}, table.Rows[0].Fields)
	})
}

func TestDecode_Charset(t *testing.T) {
	t.Run("Latin-1 input is converted", func(t *testing.T) {
		table, err := New(WithCharset("latin1")).Decode([]byte("name\nCaf\xe9\n"))

		require.NoError(t, err)
		assert.Equal(t, "Café", table.Rows[0].Fields[0])
	})

	t.Run("UTF-8 charset is a no-op", func(t *testing.T) {
		table, err := New(WithCharset("UTF-8")).Decode([]byte("name\nCafé\n"))

		require.NoError(t, err)
		assert.Equal(t, "Café", table.Rows[0].Fields[0])
	})

	t.Run("Unknown charset", func(t *testing.T) {
		_, err := New(WithCharset("klingon")).Decode([]byte("name\nx\n"))
		assert.ErrorIs(t, err, ErrUnknownCharset)
	})
}

func TestPrepareImportableData(t *testing.T) {
	t.Run("Binds by label not position", func(t *testing.T) {
		records, err := New().DecodeRecords([]byte("sku,reference\nA,SO001\nB,SO002\n"))

		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "SO001", records[0]["reference"])
		assert.Equal(t, "A", records[0]["sku"])
		assert.Equal(t, "B", records[1]["sku"])
	})

	t.Run("Width mismatch in hand built table", func(t *testing.T) {
		_, err := PrepareImportableData(&Table{
			Header: []string{"a", "b"},
			Rows:   []Row{{LineNumber: 2, Fields: []string{"1"}}},
		})
		assert.ErrorIs(t, err, ErrMalformedRow)
	})

	t.Run("Nil table", func(t *testing.T) {
		_, err := PrepareImportableData(nil)
		assert.ErrorIs(t, err, ErrMissingHeader)
	})
}

func TestRequireLabels(t *testing.T) {
	table := &Table{Header: []string{"reference", "sku", "status"}}

	assert.NoError(t, table.RequireLabels("reference", "sku"))

	err := table.RequireLabels("reference", "quantity", "order_number")
	require.ErrorIs(t, err, ErrMissingLabels)
	assert.Contains(t, err.Error(), "quantity, order_number")
}

func TestRowError(t *testing.T) {
	err := NewRowError(4, "sku", ErrCodeMalformedRow, "bad")
	assert.Equal(t, "row 4, column 'sku': bad", err.Error())

	err = NewRowError(4, "", ErrCodeParsing, "bad")
	assert.Equal(t, "row 4: bad", err.Error())
	assert.NotErrorIs(t, err, ErrMalformedRow)
}
