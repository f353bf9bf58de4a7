package leavebalance

import (
	"errors"
	"strings"

	balanceerrors "github.com/Nambirajanmani/HRMS-sub000/internal/leavebalance/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return balanceerrors.ErrBalanceNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" && pgErr.ConstraintName == "uq_balance_employee_policy_year" {
			return balanceerrors.ErrDuplicateBalance
		}
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "duplicate key value") && strings.Contains(errMsg, "uq_balance_employee_policy_year") {
		return balanceerrors.ErrDuplicateBalance
	}

	return err
}
