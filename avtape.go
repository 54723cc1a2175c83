// Package avtape reads and writes Avro binary data with schema resolution, and queues records durably on disk.
//
// Data written with one schema can be read with another, compatible schema: fields can be added with defaults or dropped,
// numbers promoted, enums and unions reordered. The pair of schemas is compiled once into a grammar that is shared
// by every Decoder and Deserializer reading that pair.
//
// Sub-packages expose the layers separately:
// avtape/schema parses schemas, avtape/resolve plans resolutions, avtape/gram compiles them into grammars,
// avtape/wire is the binary encoding, avtape/datum reads and writes values, and avtape/queue is the queue file.
//
// avtape/encio provides io helpers and the error kinds shared by all of them.
package avtape
