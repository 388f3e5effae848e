/*
Package status accumulates what happened during one run.

	+-------------+        +-------------+
	| FileOutcome | -----> |  RunStats   |
	|  (per file) |        | (per run)   |
	+-------------+        +------+------+
	                              |
	                       +------+------+
	                       |   Summary   |
	                       +-------------+

🎯 Purpose:
- FileOutcome describes a single file after substitution
- RunStats keeps the run totals plus the display width hints
- Summary is the read-only view printed at the end of a run

📊 Counters:
- FilesChanged: name or content matched at least once
- FilesWithNameChanges / FilesWithContentChanges: each side on its own
- TotalContentChanges: every content match, summed
- DirectoriesCreated: one per missing parent directory

A dry run uses RunStats to remember which destinations it has already
simulated, so a later file mapping onto the same path is reported as an
overwrite.

RunStats is owned by the sequential file loop and is not locked.
*/
package status
