// Package history reads a recognition-history LevelDB store and turns it into a set of songs.
//
// # Reading
//
// [OpenStore] opens the store read-only. [Store.Records] yields each key/value pair once, in the
// store's key order, and releases the iterator however iteration ends. [ReadAll] holds the store
// open only for the decode pass.
//
// # Decoding
//
// Every value is decoded as JSON. Values that are not JSON degrade to best-effort UTF-8 text;
// decoding never fails and never drops a key.
//
// # Extraction
//
// [Extract] tries each known record shape in a fixed order (see [SourceShape]). The first shape
// that yields a non-blank title and artist wins; records matching no shape are not songs.
// Results are deduplicated by normalized title/artist identity.
package history
