package results

import (
	"encoding/json"
	"testing"

	"github.com/vnykmshr/ratepool/internal/testutil"
)

func row(kv ...string) Row {
	var r Row
	for i := 0; i+1 < len(kv); i += 2 {
		r.Set(kv[i], kv[i+1])
	}
	return r
}

func TestRowKeepsInsertionOrder(t *testing.T) {
	r := row("b", "2", "a", "1")
	r.Set("b", "3")

	testutil.AssertEqual(t, r.Len(), 2)
	cols := r.Columns()
	testutil.AssertEqual(t, cols[0], "b")
	testutil.AssertEqual(t, cols[1], "a")

	v, ok := r.Get("b")
	testutil.AssertTrue(t, ok)
	testutil.AssertEqual(t, v, "3")

	_, ok = r.Get("missing")
	testutil.AssertTrue(t, !ok)
}

func TestRowJSONRoundTripKeepsOrder(t *testing.T) {
	r := row("z", "26", "a", "1", "q", "")

	b, err := json.Marshal(r)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, string(b), `{"z":"26","a":"1","q":""}`)

	var back Row
	testutil.AssertNoError(t, json.Unmarshal(b, &back))
	testutil.AssertEqual(t, back.Columns()[0], "z")
	testutil.AssertEqual(t, back.Len(), 3)
}

func TestTableUnionsColumns(t *testing.T) {
	rows := []Row{
		row("id", "1", "player1_kills", "5"),
		row("id", "2", "player1_kills", "3", "player2_kills", "7"),
		row("id", "3"),
	}

	header, records := Table(rows)

	testutil.AssertEqual(t, len(header), 3)
	testutil.AssertEqual(t, header[2], "player2_kills")
	testutil.AssertEqual(t, len(records), 3)
	testutil.AssertEqual(t, records[0][2], "")
	testutil.AssertEqual(t, records[1][2], "7")
	testutil.AssertEqual(t, records[2][1], "")
}

func TestTableEmpty(t *testing.T) {
	header, records := Table(nil)
	testutil.AssertEqual(t, len(header), 0)
	testutil.AssertEqual(t, len(records), 0)
}
