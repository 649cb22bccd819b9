/*
Package sparse implements a logical, multi-column, time-versioned row
abstraction on top of an ordered byte-key/byte-value index (in this case,
on top of an in-memory B-tree or a Bolt bucket).

Each logical row is stored as one or more physically independent index
entries. The package provides atomic read and atomic write-then-read of a
whole logical row even though the underlying index only guarantees
single-entry atomicity.

# Key layout

Keys are formed as:

	[schemaName] NUL [primaryKey] [columnName] NUL [timestamp]

and the entry value is the encoded column value for that primary key, or a
tombstone marking the column deleted as of that timestamp. Encoded keys sort
lexicographically in exactly (schemaName, primaryKey, columnName, timestamp
ascending) order, so all revisions of one row form a contiguous range under a
shared prefix, and all revisions of one column appear together in timestamp
order.

For example, a row with columns Id, Name, Employer and DateOfHire written at
t0 and partially overwritten at t1 is stored as:

	[employee][12][DateOfHire][t0] : [4/30/02]
	[employee][12][DateOfHire][t1] : [4/30/05]
	[employee][12][Employer][t0]   : [SAIC]
	[employee][12][Employer][t1]   : [SYSTAP]
	[employee][12][Id][t0]         : [12]
	[employee][12][Name][t0]       : [Bryan Thompson]

Reading at t0 yields the t0 state; reading at t1 yields the t1 state with
values written at t0 and not overwritten still present. MaxTimestamp reads
the most current state.

# Atomicity

A row never spans two index partitions, so the node owning a row's key range
can execute a whole procedure (read, or write followed by a confirmatory
read) without yielding to any other procedure on the same row. Procedures
targeting the same row are serialized; procedures targeting different rows
may run concurrently. A plain range scan is only weakly consistent at row
granularity: it never returns a half-written entry, but rows not yet reached
may be modified before the scan gets there.

When the index is local, procedures execute in-process. When it is
partitioned, the procedure is encoded into a small versioned wire format and
submitted, keyed by the row's encoded key, to whichever node owns that key;
the node decodes it, executes it against its local index, and returns the
encoded row.

# Value encoding

Column values are msgpack with a one-byte marker in front. Writing a nil
column value stores a tombstone rather than omitting the entry, so later
reads at a higher timestamp see the column as deleted instead of falling
back to an older revision.
*/
package sparse
