// Package scene writes positioned topology documents for external renderers.
//
// A [Scene] lists every visible card with its position, footprint, category
// and metrics, plus the edges between them with back-edges flagged. Optional
// transition frames let a renderer replay an expand or collapse animation
// without linking this module:
//
//	data, err := scene.RenderJSON(vg, res,
//	    scene.WithAnalysis(a),
//	    scene.WithExpanded(expanded),
//	    scene.WithTransition(state, 30),
//	)
package scene
