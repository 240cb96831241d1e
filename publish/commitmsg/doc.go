// Package commitmsg builds the publish commit message. The subject supports
// {VAR} placeholder substitution, and the list of published paths is encoded
// between marker lines in the body so that a later run can tell what the
// previous publish commit carried.
package commitmsg
