// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package seascene sets up an interactive sea scene: an HDR
// environment, a glTF ship model, an animated water plane and
// an orbit camera that follows the viewport size.
//
// The scene itself is assembled by package bootstrap.
// This package only holds state shared by every sub-package,
// which currently is the logger.
package seascene
