package service

import "tracking-service/internal/model"

// FilterScreens narrows the fleet to one material, or returns it whole for
// the "all" filter.
func FilterScreens(screens []model.ScreenStatus, materialID string) []model.ScreenStatus {
	if materialID == "" || materialID == model.MaterialAll {
		return screens
	}
	filtered := make([]model.ScreenStatus, 0, len(screens))
	for _, s := range screens {
		if s.MaterialID == materialID {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// ReconcileSelection keeps the selected device consistent with the current
// filtered list. Selection is sticky: as long as the device is still
// present it stays selected across poll ticks. When it disappears, or
// nothing was selected, the first device of the list takes over; an empty
// list clears the selection.
func ReconcileSelection(filtered []model.ScreenStatus, currentDeviceID string) string {
	if currentDeviceID != "" {
		for _, s := range filtered {
			if s.DeviceID == currentDeviceID {
				return currentDeviceID
			}
		}
	}
	if len(filtered) > 0 {
		return filtered[0].DeviceID
	}
	return ""
}

// FindScreen returns the screen with the given device id, or nil.
func FindScreen(screens []model.ScreenStatus, deviceID string) *model.ScreenStatus {
	for i := range screens {
		if screens[i].DeviceID == deviceID {
			return &screens[i]
		}
	}
	return nil
}
