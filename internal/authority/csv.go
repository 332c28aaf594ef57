package authority

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"stake-wallet-profiler/internal/domain"
)

// StakeCSVSuffix identifies stake-account exports in an input directory.
const StakeCSVSuffix = ".stake_accounts.csv"

// Stake CSV column names.
const (
	ColValidatorIdentity = "validator_identity"
	ColVoteAccount       = "validator_vote_account"
	ColStakeAccount      = "stake_account"
	ColStakerAuthority   = "staker_authority"
	ColWithdrawAuthority = "withdraw_authority"
	ColDelegatedLamports = "delegated_stake_lamports"
)

// ErrNoStakeData is returned when no stake rows can be found.
var ErrNoStakeData = errors.New("no stake data found")

// DiscoverCSVs returns the stake CSV files in dir sorted by name.
func DiscoverCSVs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), StakeCSVSuffix) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no *%s files in %s", ErrNoStakeData, StakeCSVSuffix, dir)
	}
	return paths, nil
}

// ReadCSV parses stake rows from r. The first record is the header; columns
// are matched by name. An empty or unparsable delegated amount counts as zero.
func ReadCSV(r io.Reader) ([]domain.StakeRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}

	field := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []domain.StakeRow
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+2, err)
		}

		delegated, _ := strconv.ParseUint(field(rec, ColDelegatedLamports), 10, 64)
		rows = append(rows, domain.StakeRow{
			ValidatorIdentity: field(rec, ColValidatorIdentity),
			VoteAccount:       field(rec, ColVoteAccount),
			StakeAccount:      field(rec, ColStakeAccount),
			StakerAuthority:   field(rec, ColStakerAuthority),
			WithdrawAuthority: field(rec, ColWithdrawAuthority),
			DelegatedLamports: delegated,
		})
	}
	return rows, nil
}

// LoadDir discovers and reads every stake CSV in dir.
func LoadDir(dir string) ([]domain.StakeRow, error) {
	paths, err := DiscoverCSVs(dir)
	if err != nil {
		return nil, err
	}

	var rows []domain.StakeRow
	for _, p := range paths {
		fileRows, err := readFile(p)
		if err != nil {
			return nil, err
		}
		rows = append(rows, fileRows...)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %d files in %s contain no rows", ErrNoStakeData, len(paths), dir)
	}
	return rows, nil
}

func readFile(path string) ([]domain.StakeRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return rows, nil
}
