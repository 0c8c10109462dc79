package observability

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

const (
	outcomeOK       = "ok"
	outcomeNotFound = "not_found"
	outcomeError    = "error"
)

// ObserveDB times one user repository operation. A missing row is an
// outcome of its own and is not counted as a failure.
func (p *Prom) ObserveDB(op string, fn func() error) error {
	start := time.Now()
	err := fn()

	outcome := outcomeOK
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		outcome = outcomeNotFound
	default:
		outcome = outcomeError
		p.RepoFailures.WithLabelValues(op, classifyDBErr(err)).Inc()
	}
	p.RepoLatency.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())
	return err
}

func classifyDBErr(err error) string {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1062:
			return "unique_violation"
		case 1213:
			return "deadlock"
		case 1205:
			return "lock_wait_timeout"
		case 1146:
			return "missing_table"
		default:
			return "mysql_" + strconv.Itoa(int(myErr.Number))
		}
	}

	if errors.Is(err, mysql.ErrInvalidConn) {
		return "connection"
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return "timeout"
	case strings.Contains(msg, "connection"):
		return "connection"
	default:
		return "unknown"
	}
}
