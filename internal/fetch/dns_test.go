package fetch

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
)

// startDNSServer runs a local resolver that knows missing.example. does not
// exist and answers SERVFAIL for broken.example.
func startDNSServer(t *testing.T) string {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0") //nolint:noctx // test code
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	handler := dns.HandlerFunc(func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(r)
		switch r.Question[0].Name {
		case "missing.example.":
			m.Rcode = dns.RcodeNameError
		case "broken.example.":
			m.Rcode = dns.RcodeServerFailure
		default:
			m.Answer = append(m.Answer, &dns.A{
				Hdr: dns.RR_Header{Name: r.Question[0].Name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 60},
				A:   net.ParseIP("192.0.2.1"),
			})
		}
		_ = w.WriteMsg(m)
	})

	started := make(chan struct{})
	server := &dns.Server{PacketConn: pc, Handler: handler, NotifyStartedFunc: func() { close(started) }}
	go func() {
		_ = server.ActivateAndServe()
	}()
	<-started

	t.Cleanup(func() {
		_ = server.Shutdown()
	})

	return pc.LocalAddr().String()
}

// TestDNSCheckerCheck tests the NXDOMAIN pre-check.
func TestDNSCheckerCheck(t *testing.T) {
	t.Parallel()

	checker := NewDNSChecker(startDNSServer(t), time.Second)

	t.Run("existing host", func(t *testing.T) {
		t.Parallel()
		if err := checker.Check(context.Background(), "www.example.com"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("nxdomain is a terminal failure", func(t *testing.T) {
		t.Parallel()
		err := checker.Check(context.Background(), "missing.example")
		if ReasonOf(err) != ReasonInvalidDomain {
			t.Fatalf("expected invalid domain, got %v", err)
		}
		if ClassifyFailure(ReasonOf(err), 0, 3) != DecisionFail {
			t.Error("expected nxdomain to fail the job")
		}
	})

	t.Run("servfail is not a verdict", func(t *testing.T) {
		t.Parallel()
		err := checker.Check(context.Background(), "broken.example")
		if !errors.Is(err, ErrDNSUnavailable) {
			t.Errorf("expected ErrDNSUnavailable, got %v", err)
		}
	})

	t.Run("ip literal is skipped", func(t *testing.T) {
		t.Parallel()
		if err := checker.Check(context.Background(), "192.0.2.7"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

// TestDNSCheckerUnavailable tests an unreachable resolver.
func TestDNSCheckerUnavailable(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0") //nolint:noctx // test code
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	addr := pc.LocalAddr().String()
	pc.Close()

	checker := NewDNSChecker(addr, 200*time.Millisecond)
	if err := checker.Check(context.Background(), "example.com"); !errors.Is(err, ErrDNSUnavailable) {
		t.Errorf("expected ErrDNSUnavailable, got %v", err)
	}
}

// TestNewDNSCheckerDefaultPort tests the port default.
func TestNewDNSCheckerDefaultPort(t *testing.T) {
	t.Parallel()

	if got := NewDNSChecker("9.9.9.9", time.Second).Server(); got != "9.9.9.9:53" {
		t.Errorf("got %q", got)
	}
	if got := NewDNSChecker("9.9.9.9:5353", time.Second).Server(); got != "9.9.9.9:5353" {
		t.Errorf("got %q", got)
	}
}
