// Package overlay implements the interactive mask controller.
//
// A Controller owns the circular mask drawn over the displayed
// spectrum. Pointer gestures move its center or resize its radius; the
// controller clamps the circle to the display bounds, keeps the local
// state optimistic (the circle follows the pointer immediately) and
// debounces the expensive reconstruction commits, so a drag produces
// one commit per quiet period instead of one per pointer event.
// Releasing the pointer always fires one final commit with the latest
// mask.
//
// Display coordinates are whatever the host renders at; commits are
// handed out in natural spectrum coordinates, rounded to the nearest
// pixel.
//
// # Usage
//
//	ctrl, err := overlay.NewController(256, 256, 512, 512,
//		overlay.WithCommitFunc(func(m transform.Mask) {
//			svc.Reconstruct(m)
//		}),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// wire pointer events from the host UI
//	ctrl.PointerDown(x, y)
//	ctrl.PointerMove(x, y)
//	ctrl.PointerUp()
package overlay
