package domain

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArchiveError_Messages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{UnsupportedFormat("z.rar"), "Unsupported archive format for file: z.rar"},
		{TarExtraction(io.ErrUnexpectedEOF), "Failed to extract tar archive: unexpected EOF"},
		{ZipExtraction(errors.New("bad crc")), "Failed to extract zip archive: bad crc"},
		{SevenZExtraction(errors.New("bad header")), "Failed to extract 7z archive: bad header"},
		{UnsafePath("../x", errors.New("path escapes destination")), "Unsafe path in archive: ../x: path escapes destination"},
		{UnsafePath("../x", nil), "Unsafe path in archive: ../x"},
		{IO(fs.ErrPermission), "I/O error: permission denied"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
	}
}

func TestArchiveError_Is(t *testing.T) {
	err := fmt.Errorf("extract: %w", TarExtraction(io.ErrUnexpectedEOF))

	assert.ErrorIs(t, err, ErrTarExtraction)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.NotErrorIs(t, err, ErrZipExtraction)
	assert.Equal(t, KindTarExtraction, KindOf(err))
	assert.Equal(t, ErrorKind(0), KindOf(io.EOF))
}

func TestIO_KeepsArchiveErrors(t *testing.T) {
	unsafe := UnsafePath("x", nil)
	assert.Same(t, unsafe, IO(unsafe))
	assert.Nil(t, IO(nil))

	wrapped := IO(fs.ErrNotExist)
	assert.ErrorIs(t, wrapped, ErrIO)
	assert.ErrorIs(t, wrapped, fs.ErrNotExist)
}

func TestDecodeError(t *testing.T) {
	cause := errors.New("boom")

	assert.ErrorIs(t, DecodeError(FormatZip, cause), ErrZipExtraction)
	assert.ErrorIs(t, DecodeError(FormatSevenZ, cause), ErrSevenZExtraction)
	for _, f := range []Format{FormatTar, FormatTarGz, FormatTarZst} {
		assert.ErrorIs(t, DecodeError(f, cause), ErrTarExtraction)
	}

	ioErr := IO(cause)
	assert.Same(t, ioErr, DecodeError(FormatZip, ioErr))
}

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "UnsafePath", KindUnsafePath.String())
	assert.Equal(t, "Io", KindIO.String())
}
