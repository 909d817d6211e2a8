// internal/app/features/membership/membershipfile.go
package membership

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/clubops/memberhub/internal/app/system/csvutil"
	"github.com/clubops/memberhub/internal/app/system/dateutil"
)

// fileColumns is the interchange header, in write order. Reading matches
// columns by name, not position.
var fileColumns = []string{
	"MemberID", "MembershipID", "MembershipType",
	"FamilyName", "GivenName", "MiddleName", "Gender", "DOB",
	"City", "State", "Email", "PrimaryMember",
	"JoinDate", "ExpirationDate", "LastModified",
}

// ReadRows parses the membership interchange CSV. Rows missing any of the
// three date fields fail the whole read; a reconciliation run never
// proceeds on partial input.
func ReadRows(r io.Reader) ([]Row, error) {
	tbl, err := csvutil.Read(r)
	if err != nil {
		return nil, err
	}
	if err := tbl.Require("MembershipID", "FamilyName", "GivenName", "DOB",
		"JoinDate", "ExpirationDate"); err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(tbl.Rows))
	for i, rec := range tbl.Rows {
		row := Row{
			MemberID:       tbl.Get(rec, "MemberID"),
			MembershipID:   tbl.Get(rec, "MembershipID"),
			MembershipType: tbl.Get(rec, "MembershipType"),
			FamilyName:     tbl.Get(rec, "FamilyName"),
			GivenName:      tbl.Get(rec, "GivenName"),
			MiddleName:     tbl.Get(rec, "MiddleName"),
			Gender:         MapGender(tbl.Get(rec, "Gender")),
			City:           tbl.Get(rec, "City"),
			State:          tbl.Get(rec, "State"),
			Email:          tbl.Get(rec, "Email"),
			Primary:        parseBool(tbl.Get(rec, "PrimaryMember")),
		}
		line := i + 2
		if row.DOB, err = dateutil.ParseDate(tbl.Get(rec, "DOB")); err != nil {
			return nil, fmt.Errorf("line %d: dob: %w", line, err)
		}
		if row.JoinDate, err = dateutil.ParseDate(tbl.Get(rec, "JoinDate")); err != nil {
			return nil, fmt.Errorf("line %d: join date: %w", line, err)
		}
		if row.ExpirationDate, err = dateutil.ParseDate(tbl.Get(rec, "ExpirationDate")); err != nil {
			return nil, fmt.Errorf("line %d: expiration date: %w", line, err)
		}
		if v := tbl.Get(rec, "LastModified"); v != "" {
			if row.LastModified, err = parseTimestamp(v); err != nil {
				return nil, fmt.Errorf("line %d: last modified: %w", line, err)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadFile reads rows from a cached membership file on disk.
func ReadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := ReadRows(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// WriteRows writes rows in the interchange format, suitable for ReadRows.
func WriteRows(w io.Writer, rows []Row) error {
	recs := make([][]string, 0, len(rows))
	for _, r := range rows {
		lastmod := ""
		if !r.LastModified.IsZero() {
			lastmod = r.LastModified.Format("2006-01-02 15:04:05")
		}
		primary := "f"
		if r.Primary {
			primary = "t"
		}
		recs = append(recs, []string{
			r.MemberID, r.MembershipID, r.MembershipType,
			r.FamilyName, r.GivenName, r.MiddleName, r.Gender, dateutil.FormatDate(r.DOB),
			r.City, r.State, r.Email, primary,
			dateutil.FormatDate(r.JoinDate), dateutil.FormatDate(r.ExpirationDate), lastmod,
		})
	}
	return csvutil.WriteAll(w, fileColumns, recs)
}

// WriteFile caches rows to disk, replacing any previous file.
func WriteFile(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteRows(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "t", "true", "y", "yes", "1":
		return true
	}
	return false
}

// parseTimestamp accepts a date or a date with time of day.
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t.UTC(), nil
	}
	return dateutil.ParseDate(s)
}
