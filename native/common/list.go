package common

// Contains reports whether v is present in list.
func Contains[T comparable](list []T, v T) bool {
	return IndexOf(list, v) >= 0
}

// IndexOf returns the first position of v in list or -1.
func IndexOf[T comparable](list []T, v T) int {
	for i := range list {
		if list[i] == v {
			return i
		}
	}
	return -1
}

// RemoveFirst drops the first occurrence of v, preserving order. The boolean
// is false when v was absent.
func RemoveFirst[T comparable](list []T, v T) ([]T, bool) {
	idx := IndexOf(list, v)
	if idx < 0 {
		return list, false
	}
	out := make([]T, 0, len(list)-1)
	out = append(out, list[:idx]...)
	out = append(out, list[idx+1:]...)
	return out, true
}

// FirstDuplicate returns the first element of candidates already present in
// existing or repeated within candidates.
func FirstDuplicate[T comparable](existing, candidates []T) (T, bool) {
	seen := make(map[T]struct{}, len(existing)+len(candidates))
	for _, v := range existing {
		seen[v] = struct{}{}
	}
	for _, v := range candidates {
		if _, ok := seen[v]; ok {
			return v, true
		}
		seen[v] = struct{}{}
	}
	var zero T
	return zero, false
}
