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

package status

import "os"

// 📄 FileOutcome is what happened to one file. It is produced by a single
// transform and consumed by reporting, then discarded.
type FileOutcome struct {
	Input  string // input path as resolved
	Output string // destination after name substitution

	NameChanges    int
	ContentChanges int

	OriginalContent []byte
	NewContent      []byte

	Mode   os.FileMode // permission bits captured before any mutation
	Status FileStatus

	DirCreated bool // a parent directory was created for Output
	Overwrite  bool // Output existed, or was already written in this run
	Renamed    bool // the in-place input was removed after writing Output
}

// Changed reports whether the name or the content was substituted
func (o *FileOutcome) Changed() bool {
	return o.NameChanges > 0 || o.ContentChanges > 0
}

// Skipped reports whether the file was dropped without being counted
func (o *FileOutcome) Skipped() bool {
	return o.Status == StatusSkipped
}
