package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"

	"stake-wallet-profiler/internal/domain"
)

func sampleProfiles() []*domain.WalletProfile {
	last := int64(1700000000)
	iso := "2023-11-14T22:13:20Z"
	return []*domain.WalletProfile{
		{
			Wallet:            "W1",
			Mode:              domain.ModeStaker,
			EnhancedUsed:      true,
			DelegatedLamports: 1_500_000_001,
			DelegatedSOL:      1.500000001,
			StakeAccounts:     2,
			RecentSwaps:       3,
			LookbackDays:      2.5,
			SwapsPerDay:       1.2,
			LastSwapTime:      &last,
			LastSwapTimeISO:   &iso,
			TopTokenMints:     "m1,m2",
			TxTypeCounts:      map[string]int{"SWAP": 3, "TRANSFER": 1},
			FundingSourcesTop: []domain.Counterparty{{Address: "S", Lamports: 5, SOL: 5e-9}},
		},
		{Wallet: "W2", Mode: domain.ModeStaker},
	}
}

func TestParseFormats(t *testing.T) {
	got, err := ParseFormats("")
	require.NoError(t, err)
	assert.Equal(t, DefaultFormats, got)

	got, err = ParseFormats("parquet, csv,parquet")
	require.NoError(t, err)
	assert.Equal(t, []Format{FormatParquet, FormatCSV}, got)

	_, err = ParseFormats("xml")
	assert.Error(t, err)
}

func TestEncodeCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeCSV(&buf, sampleProfiles()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, CSVColumns, records[0])
	assert.Len(t, CSVColumns, 26)

	row := make(map[string]string)
	for i, col := range records[0] {
		row[col] = records[1][i]
	}
	assert.Equal(t, "W1", row["wallet"])
	assert.Equal(t, "true", row["helius_used"])
	assert.Equal(t, "1.500000001", row["delegated_sol"])
	assert.Equal(t, "1700000000", row["last_swap_time"])
	assert.Equal(t, `{"SWAP":3,"TRANSFER":1}`, row["tx_type_counts_json"])
	assert.Equal(t, `[{"address":"S","lamports":5,"sol":5e-9}]`, row["funding_sources_top_json"])

	empty := make(map[string]string)
	for i, col := range records[0] {
		empty[col] = records[2][i]
	}
	assert.Equal(t, "", empty["last_swap_time"])
	assert.Equal(t, "{}", empty["tx_type_counts_json"])
	assert.Equal(t, "[]", empty["recent_tx_summaries_json"])
	assert.Equal(t, "0", empty["balance_sol"])
}

func TestEncodeJSONZstd_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeJSONZstd(&buf, sampleProfiles()))

	got, err := DecodeJSONZstd(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "W1", got[0].Wallet)
	assert.Equal(t, 3, got[0].RecentSwaps)
}

func TestEncodeParquet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeParquet(&buf, sampleProfiles()))

	rows, err := parquet.Read[parquetRow](bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "W1", rows[0].Wallet)
	require.NotNil(t, rows[0].LastSwapTime)
	assert.Equal(t, int64(1700000000), *rows[0].LastSwapTime)
	assert.Nil(t, rows[1].LastSwapTime)
}

func TestExporter_Export(t *testing.T) {
	ctx := context.Background()
	bucket := memblob.OpenBucket(nil)
	logger, hook := logtest.NewNullLogger()

	exp := New(bucket, "runs/", logger)
	defer exp.Close()

	keys, err := exp.Export(ctx, sampleProfiles(), []Format{FormatJSON, FormatCSV, FormatParquet, FormatJSONZstd})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"runs/wallet_profiles.json",
		"runs/wallet_profiles.csv",
		"runs/wallet_profiles.parquet",
		"runs/wallet_profiles.json.zst",
	}, keys)

	data, err := bucket.ReadAll(ctx, "runs/wallet_profiles.json")
	require.NoError(t, err)
	var profiles []*domain.WalletProfile
	require.NoError(t, json.Unmarshal(data, &profiles))
	assert.Len(t, profiles, 2)

	entries := hook.AllEntries()
	require.Len(t, entries, 4)
	assert.Equal(t, logrus.InfoLevel, entries[0].Level)
}

func TestEncodeJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}
