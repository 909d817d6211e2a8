// internal/app/features/membership/row.go
package membership

import (
	"sort"
	"time"
)

// Row is one membership row in the common interchange format, shared by the
// registry download and the cached membership file.
type Row struct {
	MemberID       string // id at the external registry
	MembershipID   string
	MembershipType string

	FamilyName string
	GivenName  string
	MiddleName string
	Gender     string
	DOB        time.Time

	City  string
	State string
	Email string

	Primary        bool
	JoinDate       time.Time
	ExpirationDate time.Time
	LastModified   time.Time
}

// Hometown renders "City, State" the way member records store it.
func (r Row) Hometown() string {
	if r.City == "" && r.State == "" {
		return ""
	}
	return r.City + ", " + r.State
}

// MapGender translates a registry gender code to the stored form. The
// registry omits the field entirely for non-binary members. Already-mapped
// values pass through, so cached files re-read cleanly.
func MapGender(code string) string {
	switch code {
	case "M", "Male":
		return "Male"
	case "F", "Female":
		return "Female"
	default:
		return "Non-binary"
	}
}

// SortRows orders rows by the reconciler's processing key: member identity
// first, then expiration date. Rows for one member are therefore
// consecutive and processed oldest expiration first.
func SortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.FamilyName != b.FamilyName {
			return a.FamilyName < b.FamilyName
		}
		if a.GivenName != b.GivenName {
			return a.GivenName < b.GivenName
		}
		if a.Gender != b.Gender {
			return a.Gender < b.Gender
		}
		if !a.DOB.Equal(b.DOB) {
			return a.DOB.Before(b.DOB)
		}
		return a.ExpirationDate.Before(b.ExpirationDate)
	})
}

// Dedup collapses consecutive rows with identical (MemberID, MembershipID)
// to the last occurrence. The registry sometimes sends duplicates; each
// year has a unique membership id and each member a unique member id, so
// consecutive equality is sufficient after sorting.
func Dedup(rows []Row) []Row {
	out := rows[:0]
	for i := range rows {
		if i == len(rows)-1 ||
			rows[i].MemberID != rows[i+1].MemberID ||
			rows[i].MembershipID != rows[i+1].MembershipID {
			out = append(out, rows[i])
		}
	}
	return out
}
