// Package resilience groups the fault-tolerance wrappers used when talking
// to the exchange and news sites: retry with exponential backoff for
// transient fetch failures, and per-source circuit breakers so one
// exchange outage cannot stall the aggregate endpoint.
//
//	cb := circuitbreaker.New(circuitbreaker.MarketDataConfig("twse"))
//	result, err := cb.Execute(func() (interface{}, error) {
//	    return fetchDailyReport(ctx, date)
//	})
//
//	err := retry.WithBackoff(ctx, retry.MarketDataConfig(), func() error {
//	    return downloadReport()
//	})
package resilience
