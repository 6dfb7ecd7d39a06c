package db

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"sync"
)

// fakeDriver serves canned result sets so queries can be tested without a server.
// Each DSN names a fakeResult registered with setResult.
type fakeDriver struct{}

type fakeResult struct {
	columns []string
	rows    [][]driver.Value
	err     error

	// args receives the arguments of the last query
	args []driver.Value
}

var (
	fakeMu      sync.Mutex
	fakeResults = map[string]*fakeResult{}
)

func init() {
	sql.Register("fakepg", fakeDriver{})
}

func setResult(dsn string, res *fakeResult) {
	fakeMu.Lock()
	defer fakeMu.Unlock()
	fakeResults[dsn] = res
}

func (fakeDriver) Open(dsn string) (driver.Conn, error) {
	fakeMu.Lock()
	defer fakeMu.Unlock()
	res, ok := fakeResults[dsn]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return &fakeConn{res: res}, nil
}

type fakeConn struct {
	res *fakeResult
}

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) {
	return &fakeStmt{res: c.res}, nil
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions not supported")
}

type fakeStmt struct {
	res *fakeResult
}

func (s *fakeStmt) Close() error  { return nil }
func (s *fakeStmt) NumInput() int { return -1 }

func (s *fakeStmt) Exec(args []driver.Value) (driver.Result, error) {
	return nil, errors.New("exec not supported")
}

func (s *fakeStmt) Query(args []driver.Value) (driver.Rows, error) {
	fakeMu.Lock()
	s.res.args = args
	fakeMu.Unlock()
	if s.res.err != nil {
		return nil, s.res.err
	}
	return &fakeRows{columns: s.res.columns, rows: s.res.rows}, nil
}

type fakeRows struct {
	columns []string
	rows    [][]driver.Value
	pos     int
}

func (r *fakeRows) Columns() []string { return r.columns }
func (r *fakeRows) Close() error      { return nil }

func (r *fakeRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.pos])
	r.pos++
	return nil
}
