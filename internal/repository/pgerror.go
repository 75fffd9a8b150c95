package repository

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
)

// isUniqueViolation はPostgreSQLのユニーク制約違反かどうかを判定する。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pgerrcode.UniqueViolation
}
