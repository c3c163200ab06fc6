// Copyright 2025 Poiesic Systems
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


package parser

import "errors"

var (
	// ErrUnsupportedFormat is returned when no parser is registered for a
	// file's extension.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrMalformedContent is returned when a file cannot be parsed as its
	// declared format.
	ErrMalformedContent = errors.New("malformed file content")
)
