// Package pause provides the shared pause/resume signal consulted by the
// chapter downloader, and a background listener that flips it when a
// designated key is read from an input stream.
//
// The Controller is the only state shared between the listener goroutine and
// the download driver. It is a single atomic flag: the listener writes it, the
// downloader polls it between chunks and waits while it reports paused.
package pause
