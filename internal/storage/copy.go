package storage

import (
	"context"
	"fmt"
)

// CopyStats counts the records written by Copy.
type CopyStats struct {
	Users     int
	Companies int
	Forms     int
	Responses int
}

// Copy takes every record from src and writes it to dst, keeping identifiers and timestamps.
// This works for:
// - file -> postgres (moving a deployment onto a database)
// - postgres -> file (an offline backup)
func Copy(ctx context.Context, src, dst Store) (CopyStats, error) {
	var stats CopyStats

	users, err := src.ListUsers(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list users: %w", err)
	}
	for _, u := range users {
		if _, err := dst.CreateUser(ctx, u); err != nil {
			return stats, fmt.Errorf("failed to copy user %s: %w", u.ID, err)
		}
		stats.Users++
	}

	companies, err := src.ListCompanies(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list companies: %w", err)
	}
	for _, c := range companies {
		// Form links are re-created once each form exists in dst.
		linked := c.FormIDs
		c.FormIDs = nil
		if _, err := dst.CreateCompany(ctx, c); err != nil {
			return stats, fmt.Errorf("failed to copy company %s: %w", c.ID, err)
		}
		stats.Companies++

		forms, err := src.ListForms(ctx, c.ID)
		if err != nil {
			return stats, fmt.Errorf("failed to list forms for company %s: %w", c.ID, err)
		}
		for _, f := range forms {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			if _, err := dst.CreateForm(ctx, f); err != nil {
				return stats, fmt.Errorf("failed to copy form %s: %w", f.ID, err)
			}
			stats.Forms++

			responses, err := src.ListResponsesByForm(ctx, f.ID)
			if err != nil {
				return stats, fmt.Errorf("failed to list responses for form %s: %w", f.ID, err)
			}
			for _, r := range responses {
				if _, err := dst.CreateResponse(ctx, r); err != nil {
					return stats, fmt.Errorf("failed to copy response %s: %w", r.ID, err)
				}
				stats.Responses++
			}
		}

		for _, formID := range linked {
			if err := dst.AttachForm(ctx, c.ID, formID); err != nil {
				return stats, fmt.Errorf("failed to link form %s to company %s: %w", formID, c.ID, err)
			}
		}
	}

	return stats, nil
}
