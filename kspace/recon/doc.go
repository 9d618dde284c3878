// Package recon hosts the masked reconstruction service.
//
// The service owns one cached spectrum at a time and turns mask
// parameters into reconstructed grayscale images on a dedicated worker
// goroutine, so interactive callers never block on the numeric work.
// Requests travel over an ordered queue; replies come back tagged with
// a monotonically increasing sequence number. Consecutive queued
// reconstructions collapse to the newest one, because only the freshest
// mask still matters once a newer request is waiting. Superseded
// requests produce no reply.
//
// # Usage
//
//	svc := recon.New(ctx)
//	defer svc.Stop()
//
//	if _, err := svc.Load(spectrum); err != nil {
//		log.Fatal(err)
//	}
//	svc.Reconstruct(transform.Mask{CX: 128, CY: 128, Radius: 40})
//
//	var latest recon.Latest
//	for res := range svc.Results() {
//		if !latest.Observe(res) {
//			continue // stale
//		}
//		show(res.Image)
//	}
//
// Load replies carry the full, unmasked reconstruction of the new
// spectrum; Reconstruct replies carry the masked one. Use Latest when
// replies can reach the display path out of order.
package recon
