package pagination

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestNormalizeLimit(t *testing.T) {
	cases := map[int]int{0: DefaultLimit, -3: DefaultLimit, 10: 10, MaxLimit + 50: MaxLimit}
	for in, want := range cases {
		if got := NormalizeLimit(in); got != want {
			t.Fatalf("NormalizeLimit(%d) = %d, want %d", in, got, want)
		}
	}
	if got := LimitWithBuffer(10); got != 11 {
		t.Fatalf("expected buffer of one, got %d", got)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	in := Cursor{CreatedAt: time.Date(2026, 3, 1, 12, 30, 0, 123, time.UTC), ID: uuid.New()}
	out, err := ParseCursor(EncodeCursor(in))
	if err != nil {
		t.Fatalf("parse cursor: %v", err)
	}
	if !out.CreatedAt.Equal(in.CreatedAt) || out.ID != in.ID {
		t.Fatalf("cursor mismatch: %+v vs %+v", out, in)
	}

	if encoded := EncodeCursor(in); strings.ContainsAny(encoded, "+/=") {
		t.Fatalf("cursor %q is not query safe", encoded)
	}
	if c, err := ParseCursor("  "); err != nil || c != nil {
		t.Fatalf("blank cursor should be nil, got %v %v", c, err)
	}
	if _, err := ParseCursor("not-base64!"); err == nil {
		t.Fatal("expected invalid cursor error")
	}
}

func TestFromParams(t *testing.T) {
	limit, cursor, err := FromParams(Params{Limit: 500})
	if err != nil || limit != MaxLimit || cursor != nil {
		t.Fatalf("unexpected result %d %v %v", limit, cursor, err)
	}
	if _, _, err := FromParams(Params{Cursor: "@@"}); err == nil {
		t.Fatal("expected bad cursor to fail")
	}
}

func TestTrim(t *testing.T) {
	type row struct {
		id uuid.UUID
		at time.Time
	}
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := []row{{uuid.New(), base.Add(3 * time.Minute)}, {uuid.New(), base.Add(2 * time.Minute)}, {uuid.New(), base.Add(time.Minute)}}
	key := func(r row) Cursor { return Cursor{CreatedAt: r.at, ID: r.id} }

	page, next := Trim(rows, 2, key)
	if len(page) != 2 || next == "" {
		t.Fatalf("expected two rows and a cursor, got %d %q", len(page), next)
	}
	decoded, err := ParseCursor(next)
	if err != nil || decoded.ID != rows[1].id {
		t.Fatalf("cursor should point at last kept row, got %v %v", decoded, err)
	}

	page, next = Trim(rows, 3, key)
	if len(page) != 3 || next != "" {
		t.Fatalf("expected full page without cursor, got %d %q", len(page), next)
	}
}

func TestKeysetScope(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{DryRun: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	cursor := &Cursor{CreatedAt: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), ID: uuid.New()}

	var rows []map[string]any
	stmt := conn.Table("expenses").Scopes(Keyset(2, cursor)).Find(&rows).Statement
	sql := stmt.SQL.String()
	for _, want := range []string{"created_at < ?", "ORDER BY created_at DESC,id DESC", "LIMIT 3"} {
		if !strings.Contains(sql, want) {
			t.Fatalf("expected %q in %s", want, sql)
		}
	}

	stmt = conn.Table("expenses").Scopes(Keyset(0, nil)).Find(&rows).Statement
	if strings.Contains(stmt.SQL.String(), "WHERE") {
		t.Fatalf("first page must not filter: %s", stmt.SQL.String())
	}
}
