// Package atomicfile replaces file contents without ever exposing a partially
// written or missing file to readers, across process crashes and power loss.
//
// The write protocol is:
//  1. create a fresh temporary file next to the target (same directory, hence
//     the same filesystem, so the final rename is atomic)
//  2. write the payload through a buffered writer and flush it
//  3. fsync the temporary file and close it
//  4. rename the temporary file over the target
//  5. fsync the containing directory so the rename itself is durable
//
// If any step up to and including the fsync of the temporary file fails, the
// temporary file is removed and the target is left untouched. A failure to
// sync the directory on platforms that do not support it is logged and
// otherwise ignored.
//
// The package holds no state; concurrent writers to the same target must be
// serialized by the caller (the last rename wins).
package atomicfile
