// internal/app/features/membership/registrysource.go
package membership

import (
	"context"
	"fmt"
	"time"

	"github.com/clubops/memberhub/internal/app/system/dateutil"
	"github.com/clubops/memberhub/internal/serviceapi/registry"
)

// DownloadRows fetches current and future membership registrations from the
// registry and converts them to the interchange format. Memberships that
// expired before today are dropped; future-dated ones are kept.
func DownloadRows(ctx context.Context, client *registry.Client, clubID int64, today time.Time) ([]Row, error) {
	members, err := client.ClubMembers(ctx, clubID, false)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(members))
	for _, m := range members {
		row, err := rowFromClubMember(m)
		if err != nil {
			return nil, fmt.Errorf("membership %d for %s, %s: %w",
				m.MembershipID, m.User.LastName, m.User.FirstName, err)
		}
		if row.ExpirationDate.Before(dateutil.DateOf(today)) {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func rowFromClubMember(m registry.ClubMember) (Row, error) {
	row := Row{
		MemberID:       fmt.Sprintf("%d", m.User.UserID),
		MembershipID:   fmt.Sprintf("%d", m.MembershipID),
		MembershipType: m.MembershipLevel,
		FamilyName:     m.User.LastName,
		GivenName:      m.User.FirstName,
		MiddleName:     m.User.MiddleName,
		Gender:         MapGender(m.User.Gender),
		City:           m.User.Address.City,
		State:          m.User.Address.State,
		Email:          m.User.Email,
		Primary:        m.PrimaryMember == "T",
	}

	var err error
	if row.DOB, err = dateutil.ParseDate(m.User.DOB); err != nil {
		return Row{}, fmt.Errorf("dob: %w", err)
	}
	if row.JoinDate, err = dateutil.ParseDate(m.MembershipStart); err != nil {
		return Row{}, fmt.Errorf("membership start: %w", err)
	}
	if row.ExpirationDate, err = dateutil.ParseDate(m.MembershipEnd); err != nil {
		return Row{}, fmt.Errorf("membership end: %w", err)
	}
	if m.LastModified != "" {
		if row.LastModified, err = parseTimestamp(m.LastModified); err != nil {
			return Row{}, fmt.Errorf("last modified: %w", err)
		}
	}
	return row, nil
}
