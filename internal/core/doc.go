// Package core turns supplier spreadsheets into catalog products.
//
// It holds the import pipeline independent of any transport or storage. Web
// handlers, tests and tools drive it through [Service] and supply the
// catalog through the [CatalogStore] and [CategoryDirectory] interfaces.
//
// # Pipeline
//
// One import run goes through these stages:
//
//  1. [Parse] reads CSV (comma, semicolon or tab, sniffed) or .xlsx into a
//     [Table]. The first non-empty row is the header, blank rows are skipped
//     and at most MaxRows data rows are kept.
//  2. [Infer] proposes a [FieldMapping] from header keywords in English and
//     Turkish. Headers are compared through [Fold], so "Ürün Adı" and
//     "urun adi" are the same header.
//  3. Operators adjust the mapping with [FieldMapping.SetTarget], which returns
//     a new mapping and leaves the original untouched.
//  4. [Transform] builds one [CandidateRecord] per row, applying the brand,
//     category and image defaults. Rows without a name are rejected.
//  5. [Commit] drops codes already in the catalog or earlier in the batch and
//     inserts the rest with one InsertProducts call.
//
// [Service.Analyze] stops after stage 2, [Service.Preview] runs every stage
// except the insert and [Service.Import] runs them all.
//
// # Concurrency
//
// [ImportLimiter] bounds how many runs execute at once. A [CommitLock] keyed
// by catalog serializes the list, dedup and insert section so overlapping
// imports cannot both insert the same code. [LocalLock] covers one process;
// the redislock package covers several.
//
// # Errors
//
// Parse failures are [*ParseError] and abort the run. Rejected rows are data,
// reported in [Result.Rejections]. A failed insert is a [*CommitError] and
// nothing from the batch is stored. [MapError] turns any of these into an
// operator-facing message with a support code.
package core
