/*
Package operation sequences the imgrc pipeline.

	+-----------+     +------------+     +-----------+
	|  Scanner  | --> |  Mapping   | --> |  Rewrite  |
	|  (tree)   |     |  Builder   |     |  (refs)   |
	+-----------+     +------------+     +-----+-----+
	                                           |
	                                     +-----+------+
	                                     |  Delete    |
	                                     | (optional) |
	                                     +------------+

🎯 Purpose:
- Validates the run configuration once, up front
- Sequences scan → transcode → rewrite → delete
- Aggregates run statistics for the final summary
- Isolates per-item failures so the batch always finishes

🔄 Flow:
1. Resolve the root directory, fail fast if missing
2. Scan the tree into images and code files
3. Build the old-name → new-name mapping (transcoding or dry-run)
4. Rewrite references across code files once the mapping is complete
5. Optionally delete originals whose artifact is confirmed on disk
6. Report aggregate statistics

⚡ Key Responsibilities:
- Phase ordering: the mapping build is a barrier; no rewrite starts
  before it completes
- Dry-run purity: a dry run performs no filesystem writes at all
- Per-pair deletion gating: an original is only removed when its new
  artifact exists

🤝 Interfaces:
- Operator: Convert, Status, Restore
- transcode.Transcoder: the codec capability injected into the pipeline
*/
package operation
