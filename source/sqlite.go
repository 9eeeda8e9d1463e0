package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/arloliu/schemsearch/errs"
)

// Node is a schematic entry of the store.
type Node struct {
	ID    int64
	Name  string
	Owner int64
}

// Filter narrows the schematics returned by a store. Owners and Names are
// each OR-ed; both groups must match when both are set. Names match as
// case-insensitive substrings.
type Filter struct {
	Owners []int64
	Names  []string
}

func (f Filter) where() (string, []any) {
	var (
		clauses []string
		args    []any
	)

	if len(f.Owners) > 0 {
		parts := make([]string, len(f.Owners))
		for i, owner := range f.Owners {
			parts[i] = "SN.NodeOwner = ?"
			args = append(args, owner)
		}
		clauses = append(clauses, "("+strings.Join(parts, " OR ")+")")
	}
	if len(f.Names) > 0 {
		parts := make([]string, len(f.Names))
		for i, name := range f.Names {
			parts[i] = `SN.NodeName LIKE ? ESCAPE '\'`
			args = append(args, "%"+escapeLike(name)+"%")
		}
		clauses = append(clauses, "("+strings.Join(parts, " OR ")+")")
	}
	if len(clauses) == 0 {
		return "", nil
	}

	return " AND " + strings.Join(clauses, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// SQLStore keeps schematics in a SQLite database using the node layout of
// schematic servers: SchematicNode holds names and owners, NodeData the file
// bytes. Only rows with NodeFormat set hold Sponge schematics.
type SQLStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the store at path. ":memory:" opens a private
// in-memory database.
func OpenSQLite(path string) (*SQLStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLStore{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}

	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS SchematicNode (
			NodeId INTEGER PRIMARY KEY,
			NodeName TEXT NOT NULL,
			NodeOwner INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS NodeData (
			NodeId INTEGER PRIMARY KEY REFERENCES SchematicNode(NodeId) ON DELETE CASCADE,
			NodeFormat INTEGER NOT NULL DEFAULT 1,
			SchemData BLOB NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_schematic_node_owner ON SchematicNode(NodeOwner);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}

	return nil
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Put inserts or replaces a schematic node and its file bytes.
func (s *SQLStore) Put(ctx context.Context, node Node, data []byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO SchematicNode (NodeId, NodeName, NodeOwner) VALUES (?, ?, ?)
		 ON CONFLICT(NodeId) DO UPDATE SET NodeName = excluded.NodeName, NodeOwner = excluded.NodeOwner`,
		node.ID, node.Name, node.Owner); err != nil {
		return fmt.Errorf("put node %d: %w", node.ID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO NodeData (NodeId, NodeFormat, SchemData) VALUES (?, 1, ?)
		 ON CONFLICT(NodeId) DO UPDATE SET NodeFormat = 1, SchemData = excluded.SchemData`,
		node.ID, data); err != nil {
		return fmt.Errorf("put data %d: %w", node.ID, err)
	}

	return tx.Commit()
}

// List returns the Sponge schematic nodes matching f, ordered by id.
func (s *SQLStore) List(ctx context.Context, f Filter) ([]Node, error) {
	where, args := f.where()
	query := `SELECT SN.NodeId, SN.NodeName, SN.NodeOwner
		FROM NodeData ND INNER JOIN SchematicNode SN ON SN.NodeId = ND.NodeId
		WHERE ND.NodeFormat = 1` + where + ` ORDER BY SN.NodeId`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []Node
	for rows.Next() {
		var n Node
		if err := rows.Scan(&n.ID, &n.Name, &n.Owner); err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}

	return nodes, rows.Err()
}

// Load returns the file bytes of node id.
func (s *SQLStore) Load(ctx context.Context, id int64) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT SchemData FROM NodeData WHERE NodeId = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: node %d not found", errs.ErrIO, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: node %d: %w", errs.ErrIO, id, err)
	}

	return data, nil
}

// Sources returns one lazily loaded source per node matching f.
func (s *SQLStore) Sources(ctx context.Context, f Filter) ([]Source, error) {
	nodes, err := s.List(ctx, f)
	if err != nil {
		return nil, err
	}

	out := make([]Source, len(nodes))
	for i, n := range nodes {
		out[i] = nodeSource{store: s, node: n}
	}

	return out, nil
}

type nodeSource struct {
	store *SQLStore
	node  Node
}

func (n nodeSource) Name() string {
	return n.node.Name
}

func (n nodeSource) Open(ctx context.Context) ([]byte, error) {
	return n.store.Load(ctx, n.node.ID)
}
