// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package affinity pins worker threads to CPUs where the platform allows it.
package affinity
