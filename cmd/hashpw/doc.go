// Command hashpw provides a CLI utility for managing the shared access
// passphrase used by the gifforge server.
//
// The server does not store credentials anywhere. Access control is a
// single bcrypt hash handed to the process through the
// ACCESS_PASSPHRASE_HASH environment variable, and this tool exists to
// produce and verify that hash without pulling in any server code.
//
// # Usage
//
//	hashpw <command>
//
// # Commands
//
//	hash    Read a passphrase (hidden input on a terminal, one line on a
//	        pipe) and print its bcrypt hash to stdout. The hash is the
//	        only thing written to stdout, so the output can be captured:
//
//	            export ACCESS_PASSPHRASE_HASH="$(hashpw hash)"
//
//	check   Read a passphrase and compare it against the hash currently
//	        set in ACCESS_PASSPHRASE_HASH. Exits non-zero on mismatch.
//
// # Environment
//
//	ACCESS_PASSPHRASE_HASH - Existing hash used by the check command
//	BCRYPT_COST            - Optional hashing cost override. Must fall
//	                         within the range bcrypt accepts; the bcrypt
//	                         default is used when unset.
//
// # Notes
//
// Passphrases must be at least 6 characters. When run on a terminal the
// hash command prompts twice and refuses mismatched entries; when input
// is piped the confirmation step is skipped so the tool stays usable in
// provisioning scripts.
package main
