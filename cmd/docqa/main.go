// Package main provides the docqa command line tool.
//
// docqa scores scanned document images for capture quality: resolution,
// exposure, sharpness, geometry and more. It reads local files, http(s)
// URLs and, with Azure credentials in the environment, azblob:// locations.
//
// Usage:
//
//	docqa analyze scan.png
//	docqa batch --format csv ./scans
//
// See --help for all available options.
package main

func main() {
	Execute()
}
