// Package txverify provides two reference TransactionVerifier
// implementations: Never, which always dispatches asynchronously through
// the bulkhead and worker pool, and MethodSet, which treats an explicit
// list of "beanType.methodName" pairs as transactional and everything else
// as async.
package txverify
