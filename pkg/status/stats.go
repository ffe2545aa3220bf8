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

import "sync"

// 📊 RunStats accumulates the aggregate outcome of one optimization run.
// It is the only structure shared for mutation across rewrite workers,
// so every mutator takes the lock.
type RunStats struct {
	mu sync.Mutex

	imagesFound     int
	imagesConverted int
	imagesFailed    int
	originalBytes   int64
	newBytes        int64

	codeFilesScanned int
	filesUpdated     int
	replacements     int

	originalsDeleted int
	backupsCreated   int
}

// 📸 Snapshot is a read-only copy of the accumulated statistics
type Snapshot struct {
	ImagesFound      int
	ImagesConverted  int
	ImagesFailed     int
	OriginalBytes    int64
	NewBytes         int64
	CodeFilesScanned int
	FilesUpdated     int
	Replacements     int
	OriginalsDeleted int
	BackupsCreated   int
}

// 🏭 NewRunStats creates an empty accumulator
func NewRunStats() *RunStats {
	return &RunStats{}
}

// AddImage records a discovered image and its original size
func (s *RunStats) AddImage(originalSize int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.imagesFound++
	s.originalBytes += originalSize
}

// AddConverted records a successful transcode and its new size
func (s *RunStats) AddConverted(newSize int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.imagesConverted++
	s.newBytes += newSize
}

// AddFailed records a failed transcode
func (s *RunStats) AddFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.imagesFailed++
}

// AddScannedCodeFile records one code file examined by the rewriter
func (s *RunStats) AddScannedCodeFile() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codeFilesScanned++
}

// AddRewrite records the replacement count for one code file
func (s *RunStats) AddRewrite(replacements int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if replacements > 0 {
		s.filesUpdated++
		s.replacements += replacements
	}
}

// AddDeleted records one removed original
func (s *RunStats) AddDeleted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.originalsDeleted++
}

// AddBackup records one backup sibling created
func (s *RunStats) AddBackup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backupsCreated++
}

// 📸 Snapshot returns a consistent copy of the counters
func (s *RunStats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ImagesFound:      s.imagesFound,
		ImagesConverted:  s.imagesConverted,
		ImagesFailed:     s.imagesFailed,
		OriginalBytes:    s.originalBytes,
		NewBytes:         s.newBytes,
		CodeFilesScanned: s.codeFilesScanned,
		FilesUpdated:     s.filesUpdated,
		Replacements:     s.replacements,
		OriginalsDeleted: s.originalsDeleted,
		BackupsCreated:   s.backupsCreated,
	}
}

// 📉 Reduction returns the percentage size reduction across converted images
func (sn Snapshot) Reduction() float64 {
	if sn.OriginalBytes == 0 {
		return 0
	}
	return float64(sn.OriginalBytes-sn.NewBytes) / float64(sn.OriginalBytes) * 100
}
