package core

import (
	"context"
	"fmt"

	"catalogcore/pkg/domain"
)

// ConnectionIntegrityRule blocks commits containing connections with
// missing endpoints, non-canonical endpoint order, duplicate unordered
// pairs, or unresolvable parent links.
func ConnectionIntegrityRule() domain.Rule {
	return connectionIntegrityRule{}
}

type connectionIntegrityRule struct{}

func (connectionIntegrityRule) Name() string { return "connection_integrity" }

func (r connectionIntegrityRule) Evaluate(_ context.Context, view TransactionView, _ []Change) (Result, error) {
	var result Result
	connections := view.ListConnections()
	byID := make(map[string]struct{}, len(connections))
	for _, conn := range connections {
		byID[conn.ID] = struct{}{}
	}
	seenPairs := make(map[[2]string]string, len(connections))
	for _, conn := range connections {
		if conn.Instance1ID == conn.Instance2ID {
			result.Violations = append(result.Violations, blockViolation(r.Name(), domain.EntityConnection, conn.ID,
				fmt.Sprintf("connection %s references instance %s on both sides", conn.ID, conn.Instance1ID)))
			continue
		}
		if conn.Instance1ID > conn.Instance2ID {
			result.Violations = append(result.Violations, blockViolation(r.Name(), domain.EntityConnection, conn.ID,
				fmt.Sprintf("connection %s endpoints are not in canonical order", conn.ID)))
		}
		for _, endpoint := range []string{conn.Instance1ID, conn.Instance2ID} {
			if _, ok := view.FindInstance(endpoint); !ok {
				result.Violations = append(result.Violations, blockViolation(r.Name(), domain.EntityConnection, conn.ID,
					fmt.Sprintf("connection %s references missing instance %s", conn.ID, endpoint)))
			}
		}
		pair := [2]string{conn.Instance1ID, conn.Instance2ID}
		if pair[0] > pair[1] {
			pair[0], pair[1] = pair[1], pair[0]
		}
		if prior, ok := seenPairs[pair]; ok {
			result.Violations = append(result.Violations, blockViolation(r.Name(), domain.EntityConnection, conn.ID,
				fmt.Sprintf("connections %s and %s join the same instance pair", prior, conn.ID)))
		} else {
			seenPairs[pair] = conn.ID
		}
		if conn.ParentConnectionID != nil {
			if *conn.ParentConnectionID == conn.ID {
				result.Violations = append(result.Violations, blockViolation(r.Name(), domain.EntityConnection, conn.ID,
					fmt.Sprintf("connection %s is its own parent", conn.ID)))
			} else if _, ok := byID[*conn.ParentConnectionID]; !ok {
				result.Violations = append(result.Violations, blockViolation(r.Name(), domain.EntityConnection, conn.ID,
					fmt.Sprintf("connection %s references missing parent %s", conn.ID, *conn.ParentConnectionID)))
			}
		}
	}
	return result, nil
}
