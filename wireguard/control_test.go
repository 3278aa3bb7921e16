package wireguard

import (
	"testing"
	"time"
)

func TestParseDump(t *testing.T) {
	output := "wg0\tyAnz5TF+lXXJte14tji3zlMNq+hd2rYUIgJBgB3fBmk=\t51820\toff\n" +
		"xTIBA5rboUvnH4htodjb6e697QjLERt1NAB4mZqp8Dg=\t(none)\t203.0.113.5:51820\t10.0.0.2/32\t1718000000\t1073741824\t4096\t25\n" +
		"HIgo9xNzJMWLKASShiTqIybxZ0U3wGLiUeJ1PKf8ykw=\t(none)\t(none)\t10.0.0.3/32\t0\t0\t0\toff\n"

	statuses := parseDump(output)
	if len(statuses) != 2 {
		t.Fatalf("len(statuses) = %d, want 2 (interface line skipped)", len(statuses))
	}

	first := statuses[0]
	if first.PublicKey != "xTIBA5rboUvnH4htodjb6e697QjLERt1NAB4mZqp8Dg=" {
		t.Errorf("PublicKey = %q", first.PublicKey)
	}
	if first.Endpoint != "203.0.113.5:51820" {
		t.Errorf("Endpoint = %q", first.Endpoint)
	}
	if !first.LatestHandshake.Equal(time.Unix(1718000000, 0)) {
		t.Errorf("LatestHandshake = %v, want epoch 1718000000", first.LatestHandshake)
	}
	if first.TransferRx != 1073741824 {
		t.Errorf("TransferRx = %d, want 1073741824", first.TransferRx)
	}
	if first.TransferTx != 4096 {
		t.Errorf("TransferTx = %d, want 4096", first.TransferTx)
	}

	second := statuses[1]
	if second.Endpoint != "" {
		t.Errorf("Endpoint = %q, want empty for (none)", second.Endpoint)
	}
	if !second.LatestHandshake.IsZero() {
		t.Errorf("LatestHandshake = %v, want zero for never-connected peer", second.LatestHandshake)
	}
}

func TestParseDump_LargeCounters(t *testing.T) {
	// Counters from the kernel can exceed the 53-bit safe integer range.
	output := "wg0\tk\t51820\toff\n" +
		"peerkey\t(none)\t(none)\t10.0.0.2/32\t0\t9007199254740993\t18446744073709551615\toff\n"

	statuses := parseDump(output)
	if len(statuses) != 1 {
		t.Fatalf("len(statuses) = %d, want 1", len(statuses))
	}
	if statuses[0].TransferRx != 9007199254740993 {
		t.Errorf("TransferRx = %d, want 9007199254740993", statuses[0].TransferRx)
	}
	if statuses[0].TransferTx != 18446744073709551615 {
		t.Errorf("TransferTx = %d, want max uint64", statuses[0].TransferTx)
	}
}

func TestParseDump_EmptyAndShortLines(t *testing.T) {
	if got := parseDump(""); len(got) != 0 {
		t.Errorf("parseDump(\"\") = %v, want empty", got)
	}

	// Interface line only: no peers.
	if got := parseDump("wg0\tk\t51820\toff\n"); len(got) != 0 {
		t.Errorf("parseDump(interface only) = %v, want empty", got)
	}

	// Malformed peer lines are skipped, not fatal.
	output := "wg0\tk\t51820\toff\nbroken line without tabs\n"
	if got := parseDump(output); len(got) != 0 {
		t.Errorf("parseDump(malformed) = %v, want empty", got)
	}
}
