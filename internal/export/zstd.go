package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"stake-wallet-profiler/internal/domain"
)

// EncodeJSONZstd writes the JSON export compressed with zstd.
func EncodeJSONZstd(w *bytes.Buffer, profiles []*domain.WalletProfile) error {
	var raw bytes.Buffer
	if err := EncodeJSON(&raw, profiles); err != nil {
		return err
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return fmt.Errorf("create zstd encoder: %w", err)
	}
	if _, err := enc.Write(raw.Bytes()); err != nil {
		enc.Close()
		return fmt.Errorf("compress: %w", err)
	}
	return enc.Close()
}

// DecodeJSONZstd reads a zstd compressed JSON export.
func DecodeJSONZstd(r io.Reader) ([]*domain.WalletProfile, error) {
	dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer dec.Close()

	var profiles []*domain.WalletProfile
	if err := json.NewDecoder(dec).Decode(&profiles); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}
	return profiles, nil
}
