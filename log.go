// Copyright 2026 The tmap Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tmap

import (
	"github.com/hashicorp/go-hclog"
)

// logger receives trace output from copy, encode/decode and pool
// paths. It defaults to the null logger so the library is silent unless
// the host runtime installs one.
var logger hclog.Logger = hclog.NewNullLogger()

// SetLogger installs the logger used by this package. Call it once
// during process start-up, before maps are in use; it is not
// synchronized against concurrent map operations. A nil logger resets
// to the null logger.
func SetLogger(l hclog.Logger) {
	if l == nil {
		l = hclog.NewNullLogger()
	}
	logger = l
}
