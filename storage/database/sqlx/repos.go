// Package sqlxrepos implements the domain repositories on PostgreSQL using sqlx.
//
// Repositories hold a default executor and accept an optional per-call
// override so services can run several calls inside one transaction.
package sqlxrepos

import (
	"strings"

	"github.com/voyago/voyago/core"
)

func getExec(repoExec core.DBExecutor, svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repoExec
}

func orderBy(ordering []core.DBOrdering) string {
	if len(ordering) == 0 {
		return ""
	}
	orderList := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		orderList = append(orderList, ord.String())
	}
	return " ORDER BY " + strings.Join(orderList, ", ")
}
