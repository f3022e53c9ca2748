package setup

import (
	"fmt"
	"net"

	"github.com/miekg/dns"
	"go.uber.org/zap"
)

// DNSRedirector answers every A question with the hotspot gateway so that
// phones open the captive portal.
type DNSRedirector struct {
	RedirectIP string
	TTL        uint32
	Log        *zap.Logger
}

func (d *DNSRedirector) ServeDNS(w dns.ResponseWriter, r *dns.Msg) {
	m := new(dns.Msg)
	m.SetReply(r)
	m.Authoritative = true

	ttl := d.TTL
	if ttl == 0 {
		ttl = 60
	}

	for _, q := range r.Question {
		if q.Qtype != dns.TypeA && q.Qtype != dns.TypeANY {
			continue
		}
		rr, err := dns.NewRR(fmt.Sprintf("%s %d IN A %s", q.Name, ttl, d.RedirectIP))
		if err != nil {
			d.logger().Warn("bad redirect record", zap.String("name", q.Name), zap.Error(err))
			continue
		}
		m.Answer = append(m.Answer, rr)
	}

	if err := w.WriteMsg(m); err != nil {
		d.logger().Debug("dns write failed", zap.Error(err))
	}
}

func (d *DNSRedirector) logger() *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log
}

// serve starts answering on pc and blocks until the server is running.
// Errors after start-up are delivered on errCh.
func (d *DNSRedirector) serve(pc net.PacketConn, errCh chan<- error) (*dns.Server, error) {
	started := make(chan struct{})
	failed := make(chan error, 1)

	server := &dns.Server{
		PacketConn:        pc,
		Handler:           d,
		NotifyStartedFunc: func() { close(started) },
	}

	go func() {
		if err := server.ActivateAndServe(); err != nil {
			select {
			case failed <- err:
			default:
			}
			select {
			case errCh <- err:
			default:
			}
		}
	}()

	select {
	case <-started:
		d.logger().Info("dns redirector started",
			zap.String("addr", pc.LocalAddr().String()),
			zap.String("redirect", d.RedirectIP))
		return server, nil
	case err := <-failed:
		return nil, err
	}
}
