package account

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// roster columns
var requiredColumns = []string{"firstname", "lastname", "email"}

// ImportedRole is assigned to imported rows when the upload has no role
// column at all.
const ImportedRole = RolePresenter

// ImportRoster parses a CSV roster upload into new Accounts.
//
// The header must carry firstname, lastname and email columns; a missing
// column fails the whole import before any row is read. Rows are then
// processed in order: blank rows are skipped silently, rows with a missing or
// "@"-less email or missing name parts are collected as bad rows, and rows
// whose email already belongs to a persisted Account are collected as
// duplicates. Everything else is staged and committed in one batch at the
// end, so a commit failure persists nothing.
//
// Returns the number of accounts added and human-readable warnings for the
// duplicate and bad row numbers (1-indexed, header included).
func (svc *Service) ImportRoster(ctx context.Context, r io.Reader) (int, []string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		header = nil
	} else if err != nil {
		return 0, nil, errors.Wrap(err, "reading CSV header")
	}

	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[strings.TrimSpace(sanitizeUTF8(name))] = i
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := colIdx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return 0, []string{fmt.Sprintf("Missing required CSV columns: %s", strings.Join(missing, ", "))}, nil
	}

	roleIdx, hasRoleCol := colIdx["role"]
	if !hasRoleCol {
		roleIdx, hasRoleCol = colIdx["auth"]
	}

	var (
		staged     []Account
		duplicates []int
		badRows    []int
	)

	now := time.Now().UTC()
	rowNum := 1 // header row

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, nil, errors.Wrapf(err, "reading CSV row %d", rowNum+1)
		}
		rowNum++

		if isBlankRow(record) {
			continue
		}

		email := strings.TrimSpace(field(record, colIdx["email"]))
		if email == "" || !strings.Contains(email, "@") {
			badRows = append(badRows, rowNum)
			continue
		}

		firstName := strings.TrimSpace(field(record, colIdx["firstname"]))
		lastName := strings.TrimSpace(field(record, colIdx["lastname"]))
		if firstName == "" || lastName == "" {
			badRows = append(badRows, rowNum)
			continue
		}

		// duplicates are checked against persisted accounts only, not against
		// earlier rows of the same batch
		if _, err = svc.repo.GetAccountByEmail(ctx, email); err == nil {
			duplicates = append(duplicates, rowNum)
			continue
		} else if errors.Cause(err) != ErrNotFound {
			return 0, nil, errors.Wrap(err, "checking for duplicate email")
		}

		auth := string(ImportedRole)
		if hasRoleCol {
			auth = field(record, roleIdx)
		}

		staged = append(staged, Account{
			FirstName: firstName,
			LastName:  lastName,
			Email:     email,
			Auth:      auth,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	var warnings []string
	if len(duplicates) > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"Duplicate emails found on rows: %s. These rows were skipped.", joinRowNumbers(duplicates)))
	}
	if len(badRows) > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"Invalid or missing data on rows: %s. These rows were skipped.", joinRowNumbers(badRows)))
	}

	var added int
	if len(staged) > 0 {
		if added, err = svc.repo.CreateAccounts(ctx, staged); err != nil {
			return 0, nil, errors.Wrap(err, "committing imported accounts")
		}
	}
	return added, warnings, nil
}

// field returns the i-th record value with invalid UTF-8 replaced, or "" when
// the row is shorter than the header.
func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return sanitizeUTF8(record[i])
}

func sanitizeUTF8(s string) string {
	return strings.ToValidUTF8(s, "�")
}

func isBlankRow(record []string) bool {
	for _, v := range record {
		if v != "" {
			return false
		}
	}
	return true
}

func joinRowNumbers(rows []int) string {
	parts := make([]string, 0, len(rows))
	for _, n := range rows {
		parts = append(parts, strconv.Itoa(n))
	}
	return strings.Join(parts, ", ")
}
