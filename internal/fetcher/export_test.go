package fetcher

const MaxBodyBytes = maxBodyBytes
