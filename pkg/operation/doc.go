// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package operation applies one substitution pattern to a set of files.

	+-------------+      +-------------+      +-------------+
	|   Resolve   | ---> |  Transform  | ---> |   Report    |
	| (FilePairs) |      | (per file)  |      | (Reporter)  |
	+-------------+      +------+------+      +-------------+
	                            |
	                     +------+------+
	                     |  RunStats   |
	                     +-------------+

🎯 Purpose:
- Rewrites file names, file contents, or both
- Writes results in place or under an output prefix
- Simulates everything in a dry run without touching the disk

🔄 Flow per file:
1. Capture the input's permission bits
2. Substitute the output path (unless contents-only)
3. Read and substitute the content (unless filenames-only)
4. Write, or in a dry run only record, the destination
5. Count the file as changed when either substitution matched

⚠️ Failures:
Nothing past option validation stops a run. Write and chmod failures
become warnings and the file is marked failed. A file that disappears between
resolution and reading is dropped without being counted.

🔍 Example:

	stats, err := operation.Run(ctx, opts, reporter)
	if err != nil {
		return err
	}
	fmt.Println(stats.FilesChanged)

Files are processed one at a time, in resolver order. RunStats is not locked.
*/
package operation
