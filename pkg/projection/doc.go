// Package projection defines the dataset snapshot rendered by Landscape.
//
// # Overview
//
// A [Snapshot] is one complete, atomic result from the projection service:
// every [Point] with its two projected coordinates, the [Center] of every
// group, the fraction of variance each axis explains and an optional
// interpretation label per axis. Snapshots are never patched. A newer
// snapshot replaces the older one wholesale.
//
// # JSON Format
//
// The wire format is the one served by the projection service:
//
//	{
//	  "points": [
//	    {"player_id": 7, "name": "Saka", "team": "Arsenal",
//	     "x": 1.2, "y": -0.4, "cluster": "Wide creators"}
//	  ],
//	  "explained_variance": [0.41, 0.22],
//	  "pc_interpretation": {"PC1": "Goal threat", "PC2": "Build-up"},
//	  "cluster_centers": [
//	    {"cluster_id": 0, "label": "Wide creators", "x": 1.0, "y": -0.2, "count": 14}
//	  ],
//	  "optimal_k": 4
//	}
//
// Points usually name their group by label only ("cluster"). When a point
// also carries "cluster_id" the id takes precedence. Group ids may be JSON
// numbers or strings; both decode into a [GroupRef].
//
// # Group Resolution
//
// [Snapshot.Index] builds the lookup tables used by the renderer. A point
// whose group matches no center is an orphan: it is kept and rendered as
// ungrouped, never dropped.
//
// # Import and Export
//
// [Read] and [Import] decode and validate a snapshot; [Write] and [Export]
// encode one. Validation rejects duplicate point ids and non-finite
// coordinates. Orphaned group references are tolerated.
package projection
